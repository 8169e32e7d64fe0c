package docs

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLambda struct {
	got *lambda.InvokeInput
	out *lambda.InvokeOutput
	err error
}

func (f *fakeLambda) Invoke(_ context.Context, in *lambda.InvokeInput, _ ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	f.got = in
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func TestLambdaSync_TriggerSync(t *testing.T) {
	client := &fakeLambda{out: &lambda.InvokeOutput{StatusCode: 202}}
	trigger := NewLambdaSync(client, "", nil)

	require.NoError(t, trigger.TriggerSync(context.Background()))
	assert.Equal(t, DefaultSyncFunction, aws.ToString(client.got.FunctionName))
	assert.Equal(t, lambdatypes.InvocationTypeEvent, client.got.InvocationType)
}

func TestLambdaSync_Errors(t *testing.T) {
	t.Run("invoke", func(t *testing.T) {
		trigger := NewLambdaSync(&fakeLambda{err: errors.New("ResourceNotFoundException")}, "kb-sync", nil)
		err := trigger.TriggerSync(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kb-sync")
	})

	t.Run("function error", func(t *testing.T) {
		client := &fakeLambda{out: &lambda.InvokeOutput{StatusCode: 200, FunctionError: aws.String("Unhandled")}}
		err := NewLambdaSync(client, "kb-sync", nil).TriggerSync(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unhandled")
	})
}

package docs

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"go.uber.org/zap"

	"github.com/arturoeanton/blaize-bazaar/internal/port"
)

// DefaultSyncFunction is the Lambda that starts a knowledge base ingestion job.
const DefaultSyncFunction = "bedrock-knowledge-base-poc-auto-sync"

type lambdaAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// LambdaSync implements port.SyncTrigger with an asynchronous Lambda invoke.
type LambdaSync struct {
	client   lambdaAPI
	function string
	logger   *zap.Logger
}

var _ port.SyncTrigger = (*LambdaSync)(nil)

// NewLambdaSync creates a trigger for function. Empty uses DefaultSyncFunction.
func NewLambdaSync(client lambdaAPI, function string, logger *zap.Logger) *LambdaSync {
	if function == "" {
		function = DefaultSyncFunction
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LambdaSync{client: client, function: function, logger: logger.Named("lambda")}
}

// TriggerSync queues the sync function without waiting for it to run.
func (l *LambdaSync) TriggerSync(ctx context.Context) error {
	out, err := l.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(l.function),
		InvocationType: lambdatypes.InvocationTypeEvent,
	})
	if err != nil {
		return fmt.Errorf("invoke %s: %w", l.function, err)
	}
	if out.FunctionError != nil {
		return fmt.Errorf("invoke %s: %s", l.function, aws.ToString(out.FunctionError))
	}
	l.logger.Info("knowledge base sync queued", zap.String("function", l.function), zap.Int32("status", out.StatusCode))
	return nil
}

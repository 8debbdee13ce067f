// Package alert forwards crisis alerts to external queues.
package alert

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/ccodesido/zentiumassist-all/pkg"
)

// SQSAPI is the part of the SQS client the publisher uses.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher sends each crisis alert as a JSON message to one queue.
type SQSPublisher struct {
	Client   SQSAPI
	QueueURL string
}

// NewSQSPublisher resolves queueName with the default AWS credential chain.
// AWS_ENDPOINT_URL is honoured, so a local emulator works.
func NewSQSPublisher(ctx context.Context, queueName string) (*SQSPublisher, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := sqs.New(sqs.Options{
		Region:       cfg.Region,
		Credentials:  cfg.Credentials,
		HTTPClient:   cfg.HTTPClient,
		BaseEndpoint: cfg.BaseEndpoint,
	})
	resp, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(queueName)})
	if err != nil {
		return nil, fmt.Errorf("get queue url for %s: %w", queueName, err)
	}
	return &SQSPublisher{Client: client, QueueURL: aws.ToString(resp.QueueUrl)}, nil
}

func (p *SQSPublisher) CrisisAlert(ctx context.Context, a pkg.CrisisAlert) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	_, err = p.Client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.QueueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"professional_id": {DataType: aws.String("String"), StringValue: aws.String(a.ProfessionalID)},
		},
	})
	if err != nil {
		return fmt.Errorf("send crisis alert: %w", err)
	}
	return nil
}

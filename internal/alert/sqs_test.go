package alert

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/ccodesido/zentiumassist-all/pkg"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestSQSPublisherSendsAlertJSON(t *testing.T) {
	fake := &fakeSQS{}
	p := &SQSPublisher{Client: fake, QueueURL: "https://sqs.local/000/crisis"}
	alert := pkg.CrisisAlert{
		PatientID:      "p1",
		ProfessionalID: "pr1",
		MessageID:      "m1",
		Keyword:        "suicid",
		DetectedAt:     time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := p.CrisisAlert(context.Background(), alert); err != nil {
		t.Fatalf("CrisisAlert: %v", err)
	}
	if len(fake.inputs) != 1 {
		t.Fatalf("expected one message, got %d", len(fake.inputs))
	}
	in := fake.inputs[0]
	if aws.ToString(in.QueueUrl) != p.QueueURL {
		t.Errorf("queue url = %q", aws.ToString(in.QueueUrl))
	}
	var got pkg.CrisisAlert
	if err := json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &got); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if got.PatientID != "p1" || got.Keyword != "suicid" || !got.DetectedAt.Equal(alert.DetectedAt) {
		t.Errorf("unexpected body %+v", got)
	}
	if attr := in.MessageAttributes["professional_id"]; aws.ToString(attr.StringValue) != "pr1" {
		t.Errorf("professional_id attribute = %q", aws.ToString(attr.StringValue))
	}
}

func TestSQSPublisherWrapsSendError(t *testing.T) {
	boom := errors.New("throttled")
	p := &SQSPublisher{Client: &fakeSQS{err: boom}, QueueURL: "q"}
	err := p.CrisisAlert(context.Background(), pkg.CrisisAlert{PatientID: "p1"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}

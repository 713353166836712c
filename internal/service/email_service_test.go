package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"mathdrill/internal/logger"
	"mathdrill/internal/models"
)

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestEmailServiceDisabled(t *testing.T) {
	svc, err := NewEmailService(context.Background(), EmailOptions{AWSRegion: "us-east-1"}, logger.Nop())
	if err != nil {
		t.Fatalf("NewEmailService() error = %v", err)
	}
	if svc.IsEnabled() {
		t.Error("service without addresses should be disabled")
	}
	if err := svc.AchievementUnlocked(context.Background(), models.Achievement{Name: "First 100"}); err != nil {
		t.Errorf("disabled send returned %v", err)
	}
}

func TestAchievementEmail(t *testing.T) {
	client := &fakeSES{}
	svc := newEmailService(client, EmailOptions{
		FromEmail:   "drill@example.com",
		FromName:    "MathDrill",
		NotifyEmail: "parent@example.com",
	}, logger.Nop())

	a := models.Achievement{
		Name:         "10 in a Row",
		Description:  "Answered <10> questions correctly in a row",
		UnlockedDate: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	if err := svc.AchievementUnlocked(context.Background(), a); err != nil {
		t.Fatalf("AchievementUnlocked() error = %v", err)
	}

	if len(client.inputs) != 1 {
		t.Fatalf("sent %d emails, want 1", len(client.inputs))
	}
	in := client.inputs[0]
	if got := aws.ToString(in.FromEmailAddress); got != "MathDrill <drill@example.com>" {
		t.Errorf("from = %q", got)
	}
	if len(in.Destination.ToAddresses) != 1 || in.Destination.ToAddresses[0] != "parent@example.com" {
		t.Errorf("to = %v", in.Destination.ToAddresses)
	}
	msg := in.Content.Simple
	if got := aws.ToString(msg.Subject.Data); got != "Achievement unlocked: 10 in a Row" {
		t.Errorf("subject = %q", got)
	}
	htmlBody := aws.ToString(msg.Body.Html.Data)
	if !strings.Contains(htmlBody, "&lt;10&gt;") || strings.Contains(htmlBody, "<10>") {
		t.Error("html body does not escape the description")
	}
	if !strings.Contains(aws.ToString(msg.Body.Text.Data), "March 10, 2026") {
		t.Error("text body missing unlock date")
	}
}

func TestAchievementEmailFailure(t *testing.T) {
	client := &fakeSES{err: errors.New("throttled")}
	svc := newEmailService(client, EmailOptions{FromEmail: "a@example.com", NotifyEmail: "b@example.com"}, logger.Nop())

	err := svc.AchievementUnlocked(context.Background(), models.Achievement{Name: "First 100"})
	if err == nil || !strings.Contains(err.Error(), "b@example.com") {
		t.Errorf("error = %v, want send failure naming the recipient", err)
	}
	if got := aws.ToString(client.inputs[0].FromEmailAddress); got != "a@example.com" {
		t.Errorf("from without a name = %q", got)
	}
}

package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMNotifier pushes to the tenant's FCM topic.
type FCMNotifier struct {
	Client *messaging.Client
}

// NewFCMNotifier builds the messaging client from a firebase app.
func NewFCMNotifier(ctx context.Context, projectID string, opts ...option.ClientOption) (*FCMNotifier, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init fcm client: %w", err)
	}
	return &FCMNotifier{Client: client}, nil
}

func (n *FCMNotifier) Send(ctx context.Context, msg Message) error {
	_, err := n.Client.Send(ctx, &messaging.Message{
		Topic: TenantTopic(msg.TenantID),
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	})
	if err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}
	return nil
}

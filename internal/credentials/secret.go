package credentials

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// LoadSecret reads an API key from a Secret Manager version, e.g.
// projects/my-project/secrets/gemini-api-key/versions/latest.
func LoadSecret(ctx context.Context, name string) (string, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("create secret manager client: %w", err)
	}
	defer func() { _ = client.Close() }()

	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("access secret %s: %w", name, err)
	}

	key := strings.TrimSpace(string(resp.GetPayload().GetData()))
	if key == "" {
		return "", fmt.Errorf("secret %s is empty", name)
	}
	return key, nil
}

package helpers

import (
	"context"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/pkg/errors"
)

// ReadSecret fetches the latest version of $name from the project $projectID
func ReadSecret(ctx context.Context, projectID, name string) (string, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", errors.Wrap(err, "creating secret manager client")
	}
	defer client.Close()

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: "projects/" + projectID + "/secrets/" + name + "/versions/latest",
	})
	if err != nil {
		return "", errors.Wrapf(err, "reading secret %s", name)
	}
	return string(result.Payload.Data), nil
}

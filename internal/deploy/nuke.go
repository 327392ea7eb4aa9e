package deploy

import (
	"context"
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"gocloud.dev/blob"
)

// Nuke destroys the application stack and then the toolkit stack. Nuking an
// app that was never deployed only logs that there is nothing to do.
func Nuke(ctx context.Context, sc *StackConfiguration, logger logr.Logger) error {
	if err := nuke(ctx, sc, logger); err != nil {
		logger.Error(err, "Nuke failed", "app", sc.Config.Name)
		return err
	}
	return nil
}

func nuke(ctx context.Context, sc *StackConfiguration, logger logr.Logger) error {
	logger.Info("Destroying application", "app", sc.Config.Name)
	n, err := nukeApplication(ctx, sc, logger)
	if err != nil {
		return err
	}
	bootstrapped, err := sc.Bucket.Exists(ctx, sc.Stacks.markerKey())
	if err != nil {
		return fmt.Errorf("deploy: check toolkit: %w", err)
	}
	if n == 0 && !bootstrapped {
		logger.Info("Nothing to nuke, the application was never deployed", "app", sc.Config.Name)
		return nil
	}
	if err := nukeToolkit(ctx, sc, logger); err != nil {
		return err
	}
	logger.Info("Application destroyed", "app", sc.Config.Name)
	return nil
}

// nukeApplication deletes every object of the application stack and
// returns how many there were.
func nukeApplication(ctx context.Context, sc *StackConfiguration, logger logr.Logger) (int, error) {
	keys, err := listKeys(ctx, sc.Bucket, sc.Stacks.App+"/")
	if err != nil {
		return 0, err
	}
	logger.Info("Destroying application stack", "stack", sc.Stacks.App, "objects", len(keys))
	for _, key := range keys {
		if err := deleteKey(ctx, sc.Bucket, key, logger); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

// nukeToolkit empties the rest of the bucket, deleting the toolkit marker
// last so an interrupted nuke can be retried.
func nukeToolkit(ctx context.Context, sc *StackConfiguration, logger logr.Logger) error {
	logger.Info("Destroying toolkit stack", "stack", sc.Stacks.Toolkit, "bucket", sc.Stacks.Bucket)
	keys, err := listKeys(ctx, sc.Bucket, "")
	if err != nil {
		return err
	}
	marker := sc.Stacks.markerKey()
	hasMarker := false
	for _, key := range keys {
		if key == marker {
			hasMarker = true
			continue
		}
		if err := deleteKey(ctx, sc.Bucket, key, logger); err != nil {
			return err
		}
	}
	if hasMarker {
		return deleteKey(ctx, sc.Bucket, marker, logger)
	}
	return nil
}

func listKeys(ctx context.Context, b *blob.Bucket, prefix string) ([]string, error) {
	var keys []string
	it := b.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("deploy: list %q: %w", prefix, err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func deleteKey(ctx context.Context, b *blob.Bucket, key string, logger logr.Logger) error {
	logger.V(1).Info("Deleting", "key", key)
	if err := b.Delete(ctx, key); err != nil {
		return fmt.Errorf("deploy: delete %s: %w", key, err)
	}
	return nil
}

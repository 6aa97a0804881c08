// Package config loads the gateway configuration.
//
// Sources are layered, each overriding the one before:
//
//  1. built-in defaults
//  2. YAML files, merged in the order given
//  3. BUCKETGATE_* environment variables ("." in a key becomes "_", so
//     storage.s3.bucket is BUCKETGATE_STORAGE_S3_BUCKET)
//  4. command-line flags bound through pflag
//
// The merged result is checked with go-playground/validator plus a few
// cross-field rules (an S3 bucket when storage.type is s3, memcached servers
// when cache.type is memcached).
//
//	cfg, err := config.Load([]string{"bucketgate.yaml"}, cmd.Flags())
//	if err != nil {
//		return err
//	}
//	ctx = config.WithContext(ctx, cfg)
//
// Subcommands read it back with FromContext.
//
// Config does not require auth.secret. The secret is resolved by keybackend
// when the HTTP handler is built, so init, cleanup and the other
// maintenance commands run without one.
package config

// Package clientcli provides a client library for a bucketgate server.
//
// It uploads, downloads and deletes objects by key. Writes and deletes carry
// the shared secret as a bearer token; reads are anonymous. Profiles in a
// YAML file keep the endpoint and token for each server.
//
// # Basic Usage
//
// Create a client and upload a file:
//
//	cfg := &clientcli.Config{
//		Endpoint: "http://localhost:8787",
//		Token:    "your-secret",
//	}
//
//	client, err := clientcli.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	results, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath: "./logo.png",
//		Key:       "images/logo.png",
//	})
//
// # Profile Configuration
//
//	configFile, err := clientcli.LoadConfigFile("~/.bucketgate/config.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := clientcli.New(clientcli.ConfigFromProfile(profile))
//
// # Output Formatting
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, results)
package clientcli

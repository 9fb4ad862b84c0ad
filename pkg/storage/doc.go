// Package storage provides the bucket-bound object store clients behind the gateway.
//
// Two drivers implement gateway.ObjectStore: S3Store on aws-sdk-go-v2 and
// MinioStore on minio-go. Both talk to a single bucket shared by all tenants;
// tenant scoping is enforced by the gateway before any call reaches them.
//
// # Basic Usage
//
//	awsCfg, err := awsclient.Load(ctx, awsclient.Config{Region: "us-east-1"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	store, err := storage.Open(ctx, awsCfg, storage.Config{
//		Bucket:    "shared-bucket",
//		Endpoint:  "http://localhost:9000",
//		PathStyle: true,
//	})
//
// # Errors
//
// Every operation returns errors wrapping one of ErrNotFound, ErrRejected or
// ErrUnavailable, which in turn wrap the tenancy taxonomy. An AccessDenied from
// the store means the gateway's own credentials were refused and is reported
// as ErrUnavailable, never as a tenant authorization failure.
//
// # Uploads
//
// S3Store streams bodies through the s3 manager uploader and switches to
// multipart above PartSize. Bodies of unknown size are supported by both drivers.
package storage

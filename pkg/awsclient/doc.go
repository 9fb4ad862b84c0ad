// Package awsclient loads the AWS configuration shared by the object store
// and the credential issuer.
//
//	awsCfg, err := awsclient.Load(ctx, awsclient.Config{
//		Region:          "eu-central-1",
//		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
//		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
//	})
//	s3Client := s3.NewFromConfig(awsCfg)
package awsclient

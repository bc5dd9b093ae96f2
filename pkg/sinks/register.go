package sinks

import (
	"os"

	"go.uber.org/zap"

	"github.com/loclint/loclint/pkg/output"
	"github.com/loclint/loclint/pkg/registry"
)

func init() {
	registry.RegisterSink("xml", func(cfg output.SinkConfig) (output.Sink, error) {
		return NewXMLSink(), nil
	})
	registry.RegisterSink("xlsx", func(cfg output.SinkConfig) (output.Sink, error) {
		return NewXLSXSink(), nil
	})
	registry.RegisterSink("s3", func(cfg output.SinkConfig) (output.Sink, error) {
		return NewS3Sink(S3ConfigFromEnv()), nil
	})
	registry.RegisterSink("log", func(cfg output.SinkConfig) (output.Sink, error) {
		return NewLogSink(zap.L()), nil
	})
}

// S3ConfigFromEnv builds an S3Config from the standard AWS environment
// variables plus the LOCLINT_S3_* overrides.
func S3ConfigFromEnv() S3Config {
	return S3Config{
		Region:          os.Getenv("AWS_REGION"),
		Endpoint:        os.Getenv("LOCLINT_S3_ENDPOINT"),
		UsePathStyle:    os.Getenv("LOCLINT_S3_PATH_STYLE") == "true",
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
	}
}

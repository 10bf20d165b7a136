package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/dirsite/internal/progress"
	"github.com/ziadkadry99/dirsite/internal/publish"
	"github.com/ziadkadry99/dirsite/internal/site"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload the built site to S3",
	Long:  `Uploads every file in the output directory to publish.bucket under publish.prefix, using the default AWS credential chain.`,
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().String("bucket", "", "S3 bucket (overrides publish.bucket)")
	publishCmd.Flags().String("prefix", "", "key prefix (overrides publish.prefix)")
	publishCmd.Flags().Bool("build", false, "build the site before uploading")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if b, _ := cmd.Flags().GetString("bucket"); b != "" {
		cfg.Publish.Bucket = b
	}
	if p, _ := cmd.Flags().GetString("prefix"); p != "" {
		cfg.Publish.Prefix = p
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	if build, _ := cmd.Flags().GetBool("build"); build {
		if _, err := buildSite(ctx, cfg, site.OptionsFromConfig(cfg), true, progress.NewReporter("Building site"), log); err != nil {
			return err
		}
	}

	client, err := publish.NewClient(ctx, cfg.Publish.Region)
	if err != nil {
		return err
	}
	p, err := publish.New(client, cfg.Publish, progress.NewReporter("Uploading"), log)
	if err != nil {
		return err
	}
	res, err := p.Publish(ctx, cfg.OutputDir)
	if err != nil {
		return err
	}

	fmt.Printf("Published %d file(s), %d bytes to s3://%s/%s\n", res.Files, res.Bytes, cfg.Publish.Bucket, p.Key(""))
	return nil
}

package cli

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/docschat/docschat/internal/config"
	"github.com/docschat/docschat/internal/gcp"
	"github.com/docschat/docschat/pkg/types"
)

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Inspect Artifact Registry repositories and images",
}

var artifactsReposCmd = &cobra.Command{
	Use:   "repos",
	Short: "List repositories and their images across the project",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		vars, err := workspaceVars()
		if err != nil {
			return err
		}

		client, err := gcp.NewArtifactsClient(ctx, vars.ProjectID, vars.Region)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		repos, err := client.ListRepositories(ctx)
		if err != nil {
			return err
		}
		images, err := client.ListAllImages(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "REPOSITORY\tFORMAT\tIMAGES")
		for _, repo := range repos {
			fmt.Fprintf(w, "%s\t%s\t%d\n", repo.Name, repo.Format, len(images[repo.Name]))
		}
		return w.Flush()
	},
}

var artifactsImagesCmd = &cobra.Command{
	Use:   "images",
	Short: "List images in the server's repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		vars, err := workspaceVars()
		if err != nil {
			return err
		}

		client, err := gcp.NewArtifactsClient(ctx, vars.ProjectID, vars.Region)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		images, err := client.ListImages(ctx, cfg.Settings.Repository)
		if err != nil {
			return err
		}
		printImages(cmd, cfg.Settings.Repository, images)
		return nil
	},
}

func printImages(cmd *cobra.Command, repository string, images []types.ImageRef) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "repository: %s\n", repository)
	fmt.Fprintln(w, "IMAGE\tTAGS\tUPLOADED")
	for _, img := range images {
		tags := img.Tags
		sort.Strings(tags)
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			img.Name, strings.Join(tags, ","), img.UploadedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

// workspaceVars loads the workspace tfvars file without requiring the
// .env file; listing commands only need project and region.
func workspaceVars() (*config.TFVars, error) {
	workspace, err := requireWorkspace()
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return config.LoadTFVars(cfg.TFVarsPath(workspace))
}

func init() {
	artifactsCmd.AddCommand(artifactsReposCmd)
	artifactsCmd.AddCommand(artifactsImagesCmd)
}

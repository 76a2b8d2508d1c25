package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moorl/github-actions/internal/config"
	"github.com/moorl/github-actions/internal/shopware"
	"github.com/moorl/github-actions/internal/store"
	"github.com/moorl/github-actions/internal/ui"
)

var (
	syncManifestPath string
	syncRepoName     string
)

// languageLocales maps the output bucket to the shop locale used to look up
// the translation language.
var languageLocales = []struct {
	bucket string
	locale string
}{
	{"de", "de-DE"},
	{"en", "en-GB"},
}

// syncCmd syncs the store manifest into the Shopware product listing.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync store.yaml to the Shopware product listing",
	Long: `Build per-locale HTML from the store manifest, then update the matching
Shopware product: localized descriptions, media images, and cover.

Requires SHOPWARE_URL, SHOPWARE_CLIENT_ID, and SHOPWARE_CLIENT_SECRET in the
environment. The product is located by its product number, which is the repo
name (--repo-name or $REPO_NAME).`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncManifestPath, "manifest", "store.yaml", "Store manifest path")
	syncCmd.Flags().StringVar(&syncRepoName, "repo-name", "", "Product number (default: $REPO_NAME)")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadSync()
	if err != nil {
		return err
	}

	repoName := strings.TrimSpace(syncRepoName)
	if repoName == "" {
		repoName = cfg.RepoName
	}
	if repoName == "" {
		return fmt.Errorf("repo name not set (use --repo-name or REPO_NAME)")
	}

	baseDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	manifestPath := syncManifestPath
	if !filepath.IsAbs(manifestPath) {
		manifestPath = filepath.Join(baseDir, manifestPath)
	}

	manifest, err := store.Load(manifestPath)
	if err != nil {
		return err
	}

	// Build and write the per-locale HTML documents.
	outDir := filepath.Join(baseDir, "dist")
	locales := manifest.Locales()
	htmlByLocale := make(map[string]string, len(locales))
	for _, locale := range locales {
		doc, err := manifest.BuildLocaleHTML(locale, baseDir)
		if err != nil {
			return err
		}
		htmlByLocale[locale] = doc

		out, err := store.WriteLocaleHTML(outDir, locale, doc)
		if err != nil {
			return err
		}
		ui.Success("wrote %s", displayPath(baseDir, out))
	}

	client := shopware.New(cfg.ShopURL, cfg.ClientID, cfg.ClientSecret)
	ctx := cmd.Context()

	productID, err := client.FindProductID(ctx, repoName)
	if err != nil {
		return err
	}
	if productID == "" {
		return fmt.Errorf("no product with productNumber %q", repoName)
	}

	languageIDs := make(map[string]string, len(languageLocales))
	for _, lang := range languageLocales {
		id, err := client.SearchLanguageID(ctx, lang.locale)
		if err != nil {
			return err
		}
		languageIDs[lang.bucket] = id
	}

	// A missing language id patches without the scope header, hitting the
	// shop's default language.
	for _, locale := range locales {
		languageID := languageIDs[store.LocaleBucket(locale)]
		if err := client.PatchProductDescription(ctx, productID, htmlByLocale[locale], languageID); err != nil {
			return fmt.Errorf("update description (%s): %w", locale, err)
		}
	}

	var media []shopware.ProductMedia
	var coverID string
	position := 1
	for _, img := range manifest.Images {
		if img.File == "" {
			continue
		}
		imagePath := filepath.Join(baseDir, img.File)
		if _, err := os.Stat(imagePath); err != nil {
			return fmt.Errorf("image file not found: %s", imagePath)
		}

		mediaID, err := client.UploadMedia(ctx, imagePath, repoName)
		if err != nil {
			return err
		}
		media = append(media, shopware.ProductMedia{MediaID: mediaID, Position: position})
		if img.PreviewAny() {
			coverID = mediaID
		}
		position++
	}

	if len(media) > 0 {
		if err := client.SetProductMedia(ctx, productID, media, coverID); err != nil {
			return err
		}
	}

	ui.Success("store sync completed")
	return nil
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/HunRotation/umato/pkg/cache"
	"github.com/HunRotation/umato/pkg/errors"
)

// =============================================================================
// Cache Command
// =============================================================================

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the on-disk result cache",
		Long: `Cache manages cached pipeline products (local layouts and refined
embeddings). Entries are keyed on input content hashes and optimizer
parameters and expire on their own; clear forces a fresh start.`,
	}

	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheClearCommand())

	return cmd
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory and its size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return err
			}
			entries, size := cacheUsage(dir)
			printKeyValue("directory", dir)
			printKeyValue("entries", fmt.Sprintf("%d", entries))
			printKeyValue("size", formatBytes(size))
			return nil
		},
	}
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return err
			}
			cc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			fc, ok := cc.(*cache.FileCache)
			if !ok {
				return errors.New(errors.ErrCodeInternal, "cache at %s is not clearable", dir)
			}
			if err := fc.Clear(); err != nil {
				return err
			}
			printSuccess("Cache cleared")
			printDetail("%s", dir)
			return nil
		},
	}
}

// cacheUsage walks the cache directory, counting entries and bytes. A missing
// directory counts as empty.
func cacheUsage(dir string) (entries int, size int64) {
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		entries++
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return entries, size
}

// formatBytes renders a byte count with a binary unit suffix.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

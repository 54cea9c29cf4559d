package ssh

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mgiraud/dockhand/internal/security"
)

// UploadFile uploads a local file to the remote host over the SCP protocol.
func (c *Client) UploadFile(ctx context.Context, localPath, remotePath string) error {
	localFile, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open local file: %w", err)
	}
	defer localFile.Close()

	fileInfo, err := localFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat local file: %w", err)
	}

	session, err := c.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	remoteDir := filepath.Dir(remotePath)
	if _, err := c.Run(ctx, fmt.Sprintf("mkdir -p %s", security.ShellEscape(remoteDir))); err != nil {
		return fmt.Errorf("failed to create remote directory: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}

	filename := filepath.Base(remotePath)
	go func() {
		defer stdin.Close()
		// SCP protocol: C<mode> <size> <filename>\n<data>\0
		fmt.Fprintf(stdin, "C0644 %d %s\n", fileInfo.Size(), filename)
		_, _ = io.Copy(stdin, localFile)
		fmt.Fprint(stdin, "\x00")
	}()

	done := make(chan error, 1)
	go func() {
		done <- session.Run(fmt.Sprintf("scp -t %s", security.ShellEscape(remotePath)))
	}()

	select {
	case <-ctx.Done():
		session.Close()
		<-done
		return fmt.Errorf("upload cancelled: %w", ctx.Err())
	case err = <-done:
	}

	if err != nil {
		return fmt.Errorf("scp failed: %w", err)
	}
	return nil
}

// UploadDirectory uploads a local directory tree to the remote host. It is
// cancellable between files; a half-copied tree is acceptable, the next
// run's destructive recreate of the deployment directory cleans it up.
func (c *Client) UploadDirectory(ctx context.Context, localDir, remoteDir string) error {
	if _, err := c.Run(ctx, fmt.Sprintf("mkdir -p %s", security.ShellEscape(remoteDir))); err != nil {
		return fmt.Errorf("failed to create remote directory: %w", err)
	}

	return walkTransferable(localDir, func(path string, info os.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("upload cancelled: %w", err)
		}

		relPath, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}

		remotePath := filepath.Join(remoteDir, relPath)

		if info.IsDir() {
			_, err := c.Run(ctx, fmt.Sprintf("mkdir -p %s", security.ShellEscape(remotePath)))
			return err
		}

		return c.UploadFile(ctx, path, remotePath)
	})
}

// walkTransferable walks localDir and reports every transferable entry to
// visit. Version control metadata is skipped: .git stays local, it may hold
// credentials and the host has no use for it.
func walkTransferable(localDir string, visit func(path string, info os.FileInfo) error) error {
	return filepath.Walk(localDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && info.Name() == ".git" {
			return filepath.SkipDir
		}
		return visit(path, info)
	})
}

// UploadContentSudo writes content to a root-owned remote path via sudo tee.
// The content travels base64-encoded so no shell interpretation can apply
// to it.
func (c *Client) UploadContentSudo(ctx context.Context, content, remotePath string) error {
	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	cmd := fmt.Sprintf("echo '%s' | base64 -d | sudo tee %s > /dev/null",
		encoded, security.ShellEscape(remotePath))

	result, err := c.Run(ctx, cmd)
	if err != nil {
		return fmt.Errorf("failed to upload content: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("failed to write file: %s", result.Stderr)
	}
	return nil
}

package vault

import (
	"context"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"
)

// SyncFromServer replaces the in-memory vault with the server copy when the
// server copy is strictly newer. It returns false on any error or when there
// was nothing newer to take.
func (d *Database) SyncFromServer(ctx context.Context) bool {
	updated, err := d.Sync(ctx)
	if err != nil {
		d.log.Warn("failed to sync from server", zap.Error(err))
		return false
	}
	return updated
}

// Sync is SyncFromServer with the failure reason
func (d *Database) Sync(ctx context.Context) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureUnlocked(); err != nil {
		return false, err
	}
	if d.remote == nil || d.token == "" {
		return false, ErrSyncUnavailable
	}

	server, err := d.remote.GetVault(ctx, d.token)
	if err != nil {
		return false, err
	}
	if server == nil {
		return false, nil
	}

	serverModified := server.LastModified.UnixMilli()
	if serverModified <= d.data.LastModified {
		d.log.Debug("local vault is up to date",
			zap.Int64("local", d.data.LastModified), zap.Int64("server", serverModified))
		d.touch()
		return false, nil
	}

	data, err := d.decryptData(&server.EncryptedData, string(d.password))
	if err != nil {
		return false, err
	}
	if err := d.writeLocal(ctx, &server.EncryptedData, serverModified); err != nil {
		return false, err
	}

	d.data = data
	d.touch()
	d.log.Info("vault synced from server")
	return true, nil
}

// DiffWithServer returns a line diff between the local vault and the server
// copy, both exported without passwords. It is empty when they match.
func (d *Database) DiffWithServer(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureUnlocked(); err != nil {
		return "", err
	}
	if d.remote == nil || d.token == "" {
		return "", ErrSyncUnavailable
	}

	server, err := d.remote.GetVault(ctx, d.token)
	if err != nil {
		return "", err
	}
	if server == nil {
		return "", ErrNoServerVault
	}

	serverData, err := d.decryptData(&server.EncryptedData, string(d.password))
	if err != nil {
		return "", err
	}

	localText, err := exportJSON(d.data, false)
	if err != nil {
		return "", err
	}
	serverText, err := exportJSON(serverData, false)
	if err != nil {
		return "", err
	}

	d.touch()
	return lineDiff(localText, serverText), nil
}

// lineDiff formats a line-level diff of a and b with ---/+++ headers
func lineDiff(a, b string) string {
	if a == b {
		return ""
	}

	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffMain(ca, cb, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	var out strings.Builder
	out.WriteString("--- local\n+++ server\n")
	for _, diff := range diffs {
		prefix := " "
		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(diff.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				out.WriteString("\n")
			}
		}
	}
	return out.String()
}

package provisioner

import (
	"bytes"
	"context"
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/agentfoundry/agent-setup/internal/logger"

	// Ensure SHA512 is available for checksum verification.
	_ "crypto/sha512"
)

const (
	// DefaultDirMode is used when creating missing parent directories.
	DefaultDirMode os.FileMode = 0o755

	// RegularFileMode is the permission applied to plain destinations.
	RegularFileMode os.FileMode = 0o644

	// ExecutableFileMode is the permission applied to executable destinations.
	ExecutableFileMode os.FileMode = 0o755

	// ChecksumFunction is used to verify artifact content when a checksum
	// is declared in the manifest.
	ChecksumFunction crypto.Hash = crypto.SHA512
)

// Provisioner ensures each destination file exists locally with either the
// remote content or, if present and overwrite is disabled for its category,
// is left untouched. It only talks to the network through its Fetcher.
type Provisioner struct {
	fetcher Fetcher
}

// New returns a Provisioner backed by the given fetcher.
func New(fetcher Fetcher) *Provisioner {
	return &Provisioner{fetcher: fetcher}
}

// Provision ensures one artifact is present at its destination.
//
// If the destination exists and neither the policy nor the artifact forces
// an overwrite, the filesystem and network are not touched at all. Otherwise
// the content is fetched in full and the destination is replaced through a
// temp-file-and-rename apply, so a failed transfer never truncates an
// existing file.
func (p *Provisioner) Provision(ctx context.Context, artifact Artifact, policy OverwritePolicy) Result {
	exists, err := destinationExists(artifact.LocalPath)
	if err != nil {
		return failed(artifact, err)
	}

	if exists && !artifact.ForceOverwrite && !policy[artifact.Category] {
		logger.DebugKV(ctx, "Destination exists, overwrite disabled", "path", artifact.LocalPath)

		return Result{Artifact: artifact, Status: StatusSkipped}
	}

	if err = os.MkdirAll(filepath.Dir(artifact.LocalPath), DefaultDirMode); err != nil {
		return failed(artifact, classifyFSError(err))
	}

	data, err := p.fetcher.Fetch(ctx, artifact.RemoteURL)
	if err != nil {
		return failed(artifact, err)
	}

	if err = apply(artifact, data); err != nil {
		return failed(artifact, err)
	}

	logger.DebugKV(ctx, "Wrote artifact", "path", artifact.LocalPath, "bytes", len(data))

	return Result{Artifact: artifact, Status: StatusWritten}
}

// ProvisionAll processes artifacts in manifest order. A failure on an
// optional artifact is recorded and the batch continues; a failure on a
// critical artifact, or any destination permission failure, stops the run
// immediately and is returned as an error alongside the results so far.
func (p *Provisioner) ProvisionAll(ctx context.Context, manifest []Artifact, policy OverwritePolicy) ([]Result, error) {
	results := make([]Result, 0, len(manifest))

	for _, artifact := range manifest {
		result := p.Provision(ctx, artifact, policy)
		results = append(results, result)

		if result.Status != StatusFailed {
			continue
		}

		if artifact.Critical {
			return results, fmt.Errorf("critical artifact %s: %w", artifact.LocalPath, result.Err)
		}

		if errors.Is(result.Err, ErrPermissionDenied) {
			return results, fmt.Errorf("destination not writable at %s: %w", artifact.LocalPath, result.Err)
		}

		logger.WarnKV(ctx, "Artifact not installed",
			"path", artifact.LocalPath, "error", result.Err)
	}

	return results, nil
}

// apply replaces the destination with the fetched content. The content is
// written to a sibling temp file and renamed over the original, with the
// previous content kept as a rollback copy until the swap succeeds.
func apply(artifact Artifact, data []byte) error {
	checksum, err := expectedChecksum(artifact)
	if err != nil {
		return err
	}

	if checksum != nil {
		if err = verifyChecksum(data, checksum); err != nil {
			return fmt.Errorf("%s: %w", artifact.LocalPath, err)
		}
	}

	mode := RegularFileMode
	if artifact.Executable {
		mode = ExecutableFileMode
	}

	// The apply path needs an existing destination to rotate away.
	placeholderCreated := false

	if _, err = os.Stat(artifact.LocalPath); err != nil && os.IsNotExist(err) {
		var placeholder *os.File

		placeholder, err = os.Create(artifact.LocalPath)
		if err != nil {
			return classifyFSError(err)
		}

		_ = placeholder.Close()

		placeholderCreated = true
	}

	options := goupdate.Options{
		TargetPath: artifact.LocalPath,
		TargetMode: mode,
		Checksum:   checksum,
		Hash:       ChecksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		// Do not leave an empty destination behind: a later run with
		// overwrite disabled would skip it forever.
		if placeholderCreated {
			_ = os.Remove(artifact.LocalPath)
		}

		return classifyFSError(err)
	}

	// The apply stages the previous content under a hidden .old name and
	// normally removes it itself; sweep up any copy it could not delete.
	oldFileName := filepath.Join(
		filepath.Dir(artifact.LocalPath),
		"."+filepath.Base(artifact.LocalPath)+".old",
	)
	if _, err = os.Stat(oldFileName); err == nil {
		_ = os.Remove(oldFileName)
	}

	return nil
}

// expectedChecksum decodes the artifact's declared checksum, if any.
func expectedChecksum(artifact Artifact) ([]byte, error) {
	if artifact.Checksum == "" {
		return nil, nil
	}

	checksum, err := base64.StdEncoding.DecodeString(artifact.Checksum)
	if err != nil {
		return nil, fmt.Errorf("decode checksum for %s: %w", artifact.LocalPath, err)
	}

	return checksum, nil
}

// verifyChecksum compares fetched content against the declared checksum.
func verifyChecksum(data, expected []byte) error {
	hasher := ChecksumFunction.New()
	if _, err := hasher.Write(data); err != nil {
		return fmt.Errorf("calculate checksum: %w", err)
	}

	if !bytes.Equal(hasher.Sum(nil), expected) {
		return ErrChecksumMismatch
	}

	return nil
}

// destinationExists reports whether the destination path is present.
func destinationExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, classifyFSError(err)
}

// classifyFSError maps filesystem failures onto the typed causes callers
// dispatch on.
func classifyFSError(err error) error {
	if os.IsPermission(err) {
		return fmt.Errorf("%v: %w", err, ErrPermissionDenied)
	}

	return err
}

func failed(artifact Artifact, err error) Result {
	return Result{Artifact: artifact, Status: StatusFailed, Err: err}
}

package backup

import (
	"fmt"
	"io"
)

// Destination represents a backup storage destination
type Destination interface {
	// Upload uploads a file from the source reader to the destination
	Upload(filename string, reader io.Reader, sizeBytes int64) error

	// Download downloads a file from the destination to the writer
	Download(filename string, writer io.Writer) error

	// Delete removes a file from the destination
	Delete(filename string) error

	// List returns all backup files at the destination
	List() ([]BackupFile, error)

	// GetType returns the destination type identifier
	GetType() string
}

// BackupFile represents a file in a backup destination
type BackupFile struct {
	Filename  string
	SizeBytes int64
	CreatedAt int64 // Unix timestamp
}

// DestinationConfig contains configuration for a backup destination
type DestinationConfig struct {
	Type string `json:"type"` // "local", "sftp", "s3"
	Path string `json:"path"` // Base path for backups

	// SFTP specific
	SFTPHost        string `json:"sftp_host,omitempty"`
	SFTPPort        int    `json:"sftp_port,omitempty"`
	SFTPUsername    string `json:"sftp_username,omitempty"`
	SFTPPassword    string `json:"sftp_password,omitempty"`
	SFTPKeyPath     string `json:"sftp_key_path,omitempty"`
	KnownHostsPath  string `json:"known_hosts_path,omitempty"`
	TrustOnFirstUse bool   `json:"trust_on_first_use,omitempty"`

	// S3 specific
	S3Bucket    string `json:"s3_bucket,omitempty"`
	S3Region    string `json:"s3_region,omitempty"`
	S3AccessKey string `json:"s3_access_key,omitempty"`
	S3SecretKey string `json:"s3_secret_key,omitempty"`
	S3Endpoint  string `json:"s3_endpoint,omitempty"` // Optional, for S3-compatible storage
}

// NewDestination creates a new backup destination based on config
func NewDestination(config *DestinationConfig) (Destination, error) {
	switch config.Type {
	case "local":
		return NewLocalDestination(config.Path), nil
	case "sftp":
		return NewSFTPDestination(config)
	case "s3":
		return NewS3Destination(config)
	default:
		return nil, fmt.Errorf("unsupported destination type: %s", config.Type)
	}
}

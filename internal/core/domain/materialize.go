package domain

// FileStatus describes what happened to a materialized file.
type FileStatus string

const (
	// FileWritten means the file was created or its content replaced.
	FileWritten FileStatus = "written"
	// FileUnchanged means the file on disk already had the downloaded content.
	FileUnchanged FileStatus = "unchanged"
)

// MaterializedFile is one file written below the target directory.
type MaterializedFile struct {
	Repo   string
	Path   string
	Status FileStatus
}

// MaterializeOptions controls where and how files are downloaded.
type MaterializeOptions struct {
	TargetDir  string
	Branch     string
	RawBaseURL string
	Token      Token `masq:"secret"`
}

package dbdav

const (
	fileKindDir  = 1
	fileKindFile = 2

	defaultDirMode  = 0755
	defaultFileMode = 0644

	rootParentID = 0
	rootName     = "/"
)

type entryTab struct {
	Id            uint64 `json:"id"`
	EntryId       uint64 `json:"entry_id"`
	ParentEntryId uint64 `json:"parent_entry_id"`
	FileKind      int32  `json:"file_kind"`
	Ctime         int64  `json:"ctime"`
	Mtime         int64  `json:"mtime"`
	FileSize      int64  `json:"file_size"`
	FileMode      uint32 `json:"file_mode"`
	FileName      string `json:"file_name"`
	ContentId     uint64 `json:"content_id"`
}

func (e *entryTab) IsDir() bool {
	return e.FileKind == fileKindDir
}

type contentTab struct {
	Id        uint64 `json:"id"`
	ContentId uint64 `json:"content_id"`
	Data      []byte `json:"data"`
	Ctime     int64  `json:"ctime"`
}

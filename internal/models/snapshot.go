package models

import "time"

// Snapshot records the outcome of one fresh parse of the source file.
// Snapshots form an operational history of what was loaded and when.
type Snapshot struct {
	LoadedAt      time.Time // LoadedAt is when the parse finished.
	SourceModTime time.Time // SourceModTime is the file modification time that triggered the parse.
	PointCount    int       // PointCount is the number of points that survived normalization.
	DroppedCount  int       // DroppedCount is the number of rows dropped during normalization.
}

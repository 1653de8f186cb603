package app

// Stage is the position of a publish run. Terminal stages end the run.
type Stage int

const (
	StageStart Stage = iota
	StageTokenAcquired
	StageVideoStaged
	StageThumbnailStaged
	StageVideoPublished
	StageThumbnailPublished
	// StageThumbnailRejected: the video is live but its thumbnail was refused.
	// Cleanup and the record update still run from here.
	StageThumbnailRejected
	StageCleanupComplete

	StageDone
	StageFailedInfra
	StageFailedVideo
	StageFailedThumbnail
	StageFailedRecord
)

var stageNames = map[Stage]string{
	StageStart:              "start",
	StageTokenAcquired:      "tokenAcquired",
	StageVideoStaged:        "videoStaged",
	StageThumbnailStaged:    "thumbnailStaged",
	StageVideoPublished:     "videoPublished",
	StageThumbnailPublished: "thumbnailPublished",
	StageThumbnailRejected:  "thumbnailRejected",
	StageCleanupComplete:    "cleanupComplete",
	StageDone:               "done",
	StageFailedInfra:        "failedInfra",
	StageFailedVideo:        "failedVideo",
	StageFailedThumbnail:    "failedThumbnail",
	StageFailedRecord:       "failedRecord",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Stage) Terminal() bool {
	return s >= StageDone
}

// step returns the stage after the work of from has finished. ok reports
// whether that work succeeded.
func step(from Stage, ok bool) Stage {
	switch from {
	case StageStart:
		return pick(ok, StageTokenAcquired, StageFailedInfra)
	case StageTokenAcquired:
		return pick(ok, StageVideoStaged, StageFailedInfra)
	case StageVideoStaged:
		return pick(ok, StageThumbnailStaged, StageFailedInfra)
	case StageThumbnailStaged:
		return pick(ok, StageVideoPublished, StageFailedVideo)
	case StageVideoPublished:
		return pick(ok, StageThumbnailPublished, StageThumbnailRejected)
	case StageThumbnailPublished:
		return StageCleanupComplete
	case StageCleanupComplete:
		return pick(ok, StageDone, StageFailedRecord)
	case StageThumbnailRejected:
		return pick(ok, StageFailedThumbnail, StageFailedRecord)
	default:
		return from
	}
}

func pick(ok bool, next, failed Stage) Stage {
	if ok {
		return next
	}
	return failed
}

type Outcome int

const (
	OutcomeAborted Outcome = iota
	OutcomeVideoRejected
	OutcomePartial
	OutcomePublished
)

func (o Outcome) String() string {
	switch o {
	case OutcomePublished:
		return "published"
	case OutcomePartial:
		return "partial"
	case OutcomeVideoRejected:
		return "video rejected"
	default:
		return "aborted"
	}
}

// outcome maps a terminal stage to what the caller is told.
func outcome(s Stage) Outcome {
	switch s {
	case StageDone:
		return OutcomePublished
	case StageFailedThumbnail, StageFailedRecord:
		return OutcomePartial
	case StageFailedVideo:
		return OutcomeVideoRejected
	default:
		return OutcomeAborted
	}
}

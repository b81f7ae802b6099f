package model

import "errors"

var ErrNoRecord = errors.New("no record")
var ErrAlreadyExists = errors.New("entity already exists")
var ErrInvalidInterval = errors.New("interval end must be after start")
var ErrRecurrenceBoundsMissing = errors.New("recurrence rule has neither until date nor occurrence count")
var ErrNoOccurrences = errors.New("recurrence rule yields no occurrences")
var ErrSeriesCommitFailed = errors.New("series commit failed")
var ErrStaleMembership = errors.New("user is no longer a member of the band")
var ErrOccurrenceNotEditable = errors.New("occurrence is not in an editable state")
var ErrOccurrenceNotConcluded = errors.New("occurrence has not concluded yet")

package scopecache

import "errors"

var ErrBadArgument = errors.New("bad argument")

var ErrScopeSealed = errors.New("scope sealed")

var ErrUnitConflict = errors.New("unit conflict")

var ErrAnchorRejected = errors.New("anchor rejected")

var ErrCacheVanished = errors.New("cache vanished")

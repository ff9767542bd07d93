package asciistream

import "github.com/edaniels/golog"

// Logger is used by components that are not handed a logger of their own.
var Logger = golog.NewLogger("asciistream")

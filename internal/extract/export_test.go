package extract

// Function exports for unit testing internal logic.
var (
	DecodeText       = decodeText
	StripPageMarkers = stripPageMarkers
)

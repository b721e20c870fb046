package audio

// Export internal functions for testing.

// ParseDurationFromFFmpegOutput exports parseDurationFromFFmpegOutput for testing.
var ParseDurationFromFFmpegOutput = parseDurationFromFFmpegOutput

// FormatFFmpegTime exports formatFFmpegTime for testing.
var FormatFFmpegTime = formatFFmpegTime

// SpeechEncodingArgs exports speechEncodingArgs for testing.
var SpeechEncodingArgs = speechEncodingArgs

// CommandRunner exports commandRunner for testing.
type CommandRunner = commandRunner

// TempFileCreator exports tempFileCreator for testing.
type TempFileCreator = tempFileCreator

// FileStatter exports fileStatter for testing.
type FileStatter = fileStatter

// FileRemover exports fileRemover for testing.
type FileRemover = fileRemover

// NewTestClip builds a TempClip bound to a remover.
func NewTestClip(path string, files FileRemover) *TempClip {
	return &TempClip{Path: path, files: files}
}

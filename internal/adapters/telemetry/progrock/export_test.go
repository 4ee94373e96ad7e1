package progrock

// FormatVertex exports formatVertex for testing.
var FormatVertex = formatVertex

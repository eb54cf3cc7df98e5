package main

import "tools.zach/dev/lottery/internal/paths"

// DataPaths aliases [paths.DataDir] so the main package can name data files
// without qualifying the internal package.
type DataPaths = paths.DataDir

package go_ncm

import (
	"fmt"
	"runtime"
)

func VersionNumberString() string {
	return "dev"
}

func VersionString() string {
	return fmt.Sprintf("go-ncm %s", VersionNumberString())
}

func SystemInfoString() string {
	return fmt.Sprintf("%s; Go %s", VersionString(), runtime.Version())
}

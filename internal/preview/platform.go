package preview

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform is a host OS the preview knows how to open a browser on.
type Platform string

const (
	PlatformOSX     Platform = "osx"
	PlatformWindows Platform = "win"
	PlatformLinux   Platform = "linux"
	PlatformUnknown Platform = ""
)

// DetectHostPlatform maps the running OS to a Platform.
func DetectHostPlatform() Platform {
	return platformFor(runtime.GOOS)
}

func platformFor(goos string) Platform {
	switch goos {
	case "darwin":
		return PlatformOSX
	case "windows":
		return PlatformWindows
	case "linux":
		return PlatformLinux
	default:
		return PlatformUnknown
	}
}

// Strategy is how one platform opens a URL and chains a server command.
type Strategy struct {
	// Shell runs a composite command line.
	Shell []string
	// Open is the browser-open command; %s receives the URL.
	Open string
	// Then joins the open command with the server command.
	Then string
}

var strategies = map[Platform]Strategy{
	PlatformOSX:     {Shell: []string{"sh", "-c"}, Open: "open %s", Then: " ; "},
	PlatformWindows: {Shell: []string{"cmd", "/c"}, Open: "start %s", Then: " && "},
	PlatformLinux:   {Shell: []string{"sh", "-c"}, Open: "xdg-open %s", Then: "; "},
}

// StrategyFor looks up p. ok is false for platforms without a strategy.
func StrategyFor(p Platform) (s Strategy, ok bool) {
	s, ok = strategies[p]
	return s, ok
}

// OpenCommand returns argv that opens url.
func (s Strategy) OpenCommand(url string) []string {
	return s.shell(fmt.Sprintf(s.Open, url))
}

// CompositeCommand returns argv that opens url and then runs serverCmd.
func (s Strategy) CompositeCommand(url, serverCmd string) []string {
	return s.shell(fmt.Sprintf(s.Open, url) + s.Then + strings.TrimSpace(serverCmd))
}

func (s Strategy) shell(line string) []string {
	argv := make([]string, 0, len(s.Shell)+1)
	argv = append(argv, s.Shell...)
	return append(argv, line)
}

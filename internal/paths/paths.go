// Package paths derives the directories a deploy reads from and writes to.
package paths

import (
	"fmt"
	"path/filepath"
)

const (
	deployDirName  = "fips-deploy"
	webpageDirName = "sokol-webpage"
	samplesDirName = "sokol-samples"
	assetDirName   = "webpage"
	platformDir    = "wasm"
)

// Deployment holds the directories of one invocation. It is computed fresh
// each time and never persisted.
type Deployment struct {
	// ProjectDir is the samples project root.
	ProjectDir string
	// WorkspaceRoot contains the project and the fips-deploy tree.
	WorkspaceRoot string
	// WasmDeployDir is where the build tool deploys compiled artifacts.
	WasmDeployDir string
	// WebpageDir is the generated site.
	WebpageDir string
}

// ResolveWorkspaceRoot returns override when set, otherwise the parent of
// projectDir (projects are checked out side by side in a fips workspace).
func ResolveWorkspaceRoot(projectDir, override string) (string, error) {
	if override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return "", fmt.Errorf("resolving workspace dir: %w", err)
		}
		return abs, nil
	}
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return "", fmt.Errorf("resolving project dir: %w", err)
	}
	return filepath.Dir(abs), nil
}

// Resolve computes the deployment directories for buildConfig.
//
//   - {ws}/fips-deploy/sokol-samples/{buildConfig}  compiled artifacts
//   - {ws}/fips-deploy/sokol-webpage                generated site
func Resolve(projectDir, workspaceRoot, buildConfig string) Deployment {
	deployDir := filepath.Join(workspaceRoot, deployDirName)
	return Deployment{
		ProjectDir:    projectDir,
		WorkspaceRoot: workspaceRoot,
		WasmDeployDir: filepath.Join(deployDir, samplesDirName, buildConfig),
		WebpageDir:    filepath.Join(deployDir, webpageDirName),
	}
}

// AssetDir is the project directory holding page templates and images.
func (d Deployment) AssetDir() string {
	return filepath.Join(d.ProjectDir, assetDirName)
}

// Asset returns the path of a named file in AssetDir.
func (d Deployment) Asset(name string) string {
	return filepath.Join(d.AssetDir(), name)
}

// PlatformDir is the generated site's subdirectory for wasm pages and artifacts.
func (d Deployment) PlatformDir() string {
	return filepath.Join(d.WebpageDir, platformDir)
}

// PlatformDirName is the relative name of PlatformDir, used in page links.
func PlatformDirName() string {
	return platformDir
}

// DefaultHistoryPath is the deploy history database location. It sits
// outside WebpageDir so a rebuild does not erase it.
func (d Deployment) DefaultHistoryPath() string {
	return filepath.Join(d.WorkspaceRoot, deployDirName, ".webpage", "history.db")
}

// DefaultEmsdkDir is where fips installs the emscripten SDK.
func (d Deployment) DefaultEmsdkDir() string {
	return filepath.Join(d.WorkspaceRoot, "fips-sdks", "emsdk")
}

package largefiles_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/temirov/pushguard/internal/largefiles"
)

const (
	testRootConstant      = "/workspace/project"
	testThresholdConstant = int64(16)
)

func writeSizedFile(testInstance *testing.T, fileSystem afero.Fs, relativePath string, sizeBytes int) {
	testInstance.Helper()
	fullPath := filepath.Join(testRootConstant, relativePath)
	require.NoError(testInstance, fileSystem.MkdirAll(filepath.Dir(fullPath), 0o755))
	require.NoError(testInstance, afero.WriteFile(fileSystem, fullPath, make([]byte, sizeBytes), 0o644))
}

func TestFindFilesOverSize(testInstance *testing.T) {
	testCases := []struct {
		name          string
		files         map[string]int
		excluded      []string
		expectedPaths []string
	}{
		{
			name:          "nothing_oversized",
			files:         map[string]int{"README.md": 4, "src/main.go": 16},
			excluded:      largefiles.DefaultExcludedDirectories,
			expectedPaths: []string{},
		},
		{
			name:          "strictly_larger_only",
			files:         map[string]int{"exact.bin": 16, "bigger.bin": 17, "data/model.bin": 64},
			excluded:      largefiles.DefaultExcludedDirectories,
			expectedPaths: []string{"bigger.bin", "data/model.bin"},
		},
		{
			name: "excluded_directories_skipped_at_any_depth",
			files: map[string]int{
				".git/objects/pack/pack-1.pack": 64,
				"venv/lib/torch.so":             64,
				".venv/lib/torch.so":            64,
				"env/bin/python":                64,
				"web/node_modules/big.js":       64,
				"assets/video.mp4":              64,
			},
			excluded:      largefiles.DefaultExcludedDirectories,
			expectedPaths: []string{"assets/video.mp4"},
		},
		{
			name:          "no_exclusions",
			files:         map[string]int{"node_modules/big.js": 64},
			excluded:      nil,
			expectedPaths: []string{"node_modules/big.js"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fileSystem := afero.NewMemMapFs()
			require.NoError(testInstance, fileSystem.MkdirAll(testRootConstant, 0o755))
			for relativePath, sizeBytes := range testCase.files {
				writeSizedFile(testInstance, fileSystem, relativePath, sizeBytes)
			}

			oversizedFiles, findError := largefiles.NewFinder(fileSystem).FindFilesOverSize(testRootConstant, testThresholdConstant, testCase.excluded)
			require.NoError(testInstance, findError)

			paths := make([]string, 0, len(oversizedFiles))
			for _, oversizedFile := range oversizedFiles {
				paths = append(paths, oversizedFile.Path)
				require.Greater(testInstance, oversizedFile.SizeBytes, testThresholdConstant)
			}
			require.Equal(testInstance, testCase.expectedPaths, paths)
		})
	}
}

func TestFindFilesOverSizeRejectsMissingRoot(testInstance *testing.T) {
	_, findError := largefiles.NewFinder(afero.NewMemMapFs()).FindFilesOverSize("/missing", testThresholdConstant, nil)
	require.Error(testInstance, findError)
}

func TestFindFilesOverSizeDetectsFiftyMebibyteBoundary(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()
	boundaryPath := filepath.Join(rootDirectory, "exact.bin")
	oversizedPath := filepath.Join(rootDirectory, "dataset.bin")

	for filePath, sizeBytes := range map[string]int64{boundaryPath: largefiles.DefaultThresholdBytes, oversizedPath: largefiles.DefaultThresholdBytes + 1} {
		sparseFile, createError := os.Create(filePath)
		require.NoError(testInstance, createError)
		require.NoError(testInstance, sparseFile.Truncate(sizeBytes))
		require.NoError(testInstance, sparseFile.Close())
	}

	oversizedFiles, findError := largefiles.NewFinder(nil).FindFilesOverSize(rootDirectory, largefiles.DefaultThresholdBytes, largefiles.DefaultExcludedDirectories)
	require.NoError(testInstance, findError)
	require.Equal(testInstance, []largefiles.OversizedFile{{Path: "dataset.bin", SizeBytes: 52428801}}, oversizedFiles)
}

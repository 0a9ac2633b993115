package cache

import (
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/forgebuild/forge/internal/model"
)

// HashStrings folds a canonically-ordered list of strings into one
// xxhash digest, used for the configuration and command-line
// fingerprints.
func HashStrings(parts ...string) string {
	h := xxhash.New()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// HashFile computes the content hash half of a model.FileFingerprint.
// Returns an error if the file cannot be read (caller treats that as
// "not up-to-date").
func HashFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(xxhash.Sum64(content), 16), nil
}

// FingerprintFile stats and hashes path, producing the
// model.FileFingerprint the cache compares on subsequent builds.
func FingerprintFile(path string) (model.FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.FileFingerprint{}, err
	}
	contentHash, err := HashFile(path)
	if err != nil {
		return model.FileFingerprint{}, err
	}
	return model.FileFingerprint{
		ModTime:     info.ModTime().UnixNano(),
		Size:        info.Size(),
		ContentHash: contentHash,
	}, nil
}

// CommandLineFingerprint hashes a target's compile flags, defines, and
// include dirs in canonical (sorted) order.
func CommandLineFingerprint(compileOptions, defines, includeDirs []string) string {
	sortedOptions := sortedCopy(compileOptions)
	sortedDefines := sortedCopy(defines)
	sortedIncludes := sortedCopy(includeDirs)
	return HashStrings(strings.Join(sortedOptions, ","), strings.Join(sortedDefines, ","), strings.Join(sortedIncludes, ","))
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

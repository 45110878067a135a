package app

import (
	"bufio"
	"errors"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// LoadEnvFiles loads dotenv files of KEY=VALUE pairs into the process
// environment. Later files override earlier ones. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if err := loadEnvFile(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

func loadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var keys []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, val, ok := parseEnvLine(scanner.Text())
		if !ok {
			continue
		}
		_ = os.Setenv(key, val)
		keys = append(keys, key)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	for _, k := range unknownEnvKeys(keys) {
		log.Warn().Str("file", path).Str("key", k).Msg("unknown GOCATALOG_ variable in dotenv file")
	}
	return nil
}

// unknownEnvKeys returns the GOCATALOG_-prefixed keys that ApplyEnvToConfig
// does not read, in input order. Other keys are left to the environment.
func unknownEnvKeys(keys []string) []string {
	known := make(map[string]struct{}, len(envKeys))
	for _, k := range envKeys {
		known[k] = struct{}{}
	}
	var out []string
	for _, k := range keys {
		if !strings.HasPrefix(k, envPrefix) {
			continue
		}
		if _, ok := known[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

// parseEnvLine accepts KEY=VALUE with an optional "export " prefix and
// optional matching quotes around the value. Comments and blanks yield false.
func parseEnvLine(line string) (key, val string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, "export ")
	eq := strings.IndexByte(line, '=')
	if eq <= 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:eq])
	val = strings.TrimSpace(line[eq+1:])
	if len(val) >= 2 {
		if (val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'') {
			val = val[1 : len(val)-1]
		}
	}
	return key, val, key != ""
}

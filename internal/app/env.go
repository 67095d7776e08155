package app

import (
    "bufio"
    "errors"
    "fmt"
    "os"
    "strings"
)

// LoadEnvFiles loads dotenv files of KEY=VALUE pairs into the process
// environment. Variables already present in the environment are kept, so a
// shell export beats a file; among files the first one to define a key wins.
// Missing files are skipped.
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

    scanner := bufio.NewScanner(f)
    lineNo := 0
    for scanner.Scan() {
        lineNo++
        key, val, ok, err := parseEnvLine(scanner.Text())
        if err != nil {
            return fmt.Errorf("%s:%d: %w", path, lineNo, err)
        }
        if !ok {
            continue
        }
        if _, exists := os.LookupEnv(key); exists {
            continue
        }
        if err := os.Setenv(key, val); err != nil {
            return err
        }
    }
    return scanner.Err()
}

// parseEnvLine accepts `KEY=value`, `export KEY=value`, quoted values and
// trailing ` # comments` on unquoted values. ok is false for blank and
// comment lines.
func parseEnvLine(line string) (key, val string, ok bool, err error) {
    line = strings.TrimSpace(line)
    if line == "" || strings.HasPrefix(line, "#") {
        return "", "", false, nil
    }
    line = strings.TrimPrefix(line, "export ")
    k, v, found := strings.Cut(line, "=")
    if !found {
        return "", "", false, fmt.Errorf("missing '=' in %q", line)
    }
    key = strings.TrimSpace(k)
    if key == "" || strings.ContainsAny(key, " \t") {
        return "", "", false, fmt.Errorf("invalid key %q", k)
    }
    val = strings.TrimSpace(v)
    if len(val) >= 2 && (val[0] == '"' || val[0] == '\'') {
        q := val[0]
        if end := strings.IndexByte(val[1:], q); end >= 0 {
            return key, val[1 : end+1], true, nil
        }
        return "", "", false, fmt.Errorf("unterminated quote for %s", key)
    }
    if i := strings.Index(val, " #"); i >= 0 {
        val = strings.TrimSpace(val[:i])
    }
    return key, val, true, nil
}

package resolver

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FolderResolver resolves special folder names ("UserProfile",
// "ApplicationData", ...) to paths. Extra named paths added with AddPath
// take precedence over the built-in table.
type FolderResolver struct {
	mu    sync.RWMutex
	extra map[string]string
}

// NewFolderResolver returns a FolderResolver with no extra paths.
func NewFolderResolver() *FolderResolver {
	return &FolderResolver{extra: make(map[string]string)}
}

// AddPath registers an extra named path, replacing any previous one.
func (f *FolderResolver) AddPath(name, path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extra[name] = path
}

// RemovePath removes an extra named path.
func (f *FolderResolver) RemovePath(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.extra, name)
}

// ResolveValue implements Resolver.
func (f *FolderResolver) ResolveValue(name string) (string, bool, error) {
	f.mu.RLock()
	p, ok := f.extra[name]
	f.mu.RUnlock()
	if ok {
		return p, true, nil
	}

	lookup, ok := specialFolders[strings.ToLower(name)]
	if !ok {
		return "", false, nil
	}
	p = lookup()
	return p, p != "", nil
}

// SpecialFolders lists the built-in folder names, sorted.
func SpecialFolders() []string {
	names := make([]string, 0, len(specialFolderNames))
	names = append(names, specialFolderNames...)
	sort.Strings(names)
	return names
}

var specialFolderNames = []string{
	"UserProfile",
	"ApplicationData",
	"LocalApplicationData",
	"CommonApplicationData",
	"Desktop",
	"DesktopDirectory",
	"MyDocuments",
	"Personal",
	"MyMusic",
	"MyPictures",
	"MyVideos",
	"Favorites",
	"StartMenu",
	"Programs",
	"Startup",
	"Windows",
	"System",
	"Fonts",
	"ProgramFiles",
	"ProgramFilesX86",
	"CommonProgramFiles",
	"InternetCache",
	"Templates",
}

var specialFolders = map[string]func() string{
	"userprofile":           home,
	"applicationdata":       configDir,
	"localapplicationdata":  cacheDir,
	"commonapplicationdata": env("ProgramData"),
	"desktop":               underHome("Desktop"),
	"desktopdirectory":      underHome("Desktop"),
	"mydocuments":           underHome("Documents"),
	"personal":              underHome("Documents"),
	"mymusic":               underHome("Music"),
	"mypictures":            underHome("Pictures"),
	"myvideos":              underHome("Videos"),
	"favorites":             underHome("Favorites"),
	"startmenu":             underConfig("Microsoft", "Windows", "Start Menu"),
	"programs":              underConfig("Microsoft", "Windows", "Start Menu", "Programs"),
	"startup":               underConfig("Microsoft", "Windows", "Start Menu", "Programs", "Startup"),
	"windows":               env("SystemRoot"),
	"system":                underEnv("SystemRoot", "System32"),
	"fonts":                 underEnv("SystemRoot", "Fonts"),
	"programfiles":          env("ProgramFiles"),
	"programfilesx86":       env("ProgramFiles(x86)"),
	"commonprogramfiles":    env("CommonProgramFiles"),
	"internetcache":         underCache("Microsoft", "Windows", "INetCache"),
	"templates":             underConfig("Microsoft", "Windows", "Templates"),
}

func home() string {
	h, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return h
}

func configDir() string {
	d, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return d
}

func cacheDir() string {
	d, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return d
}

func env(name string) func() string {
	return func() string { return os.Getenv(name) }
}

func under(base func() string, elem ...string) func() string {
	return func() string {
		b := base()
		if b == "" {
			return ""
		}
		return filepath.Join(append([]string{b}, elem...)...)
	}
}

func underHome(elem ...string) func() string   { return under(home, elem...) }
func underConfig(elem ...string) func() string { return under(configDir, elem...) }
func underCache(elem ...string) func() string  { return under(cacheDir, elem...) }

func underEnv(name string, elem ...string) func() string {
	return under(env(name), elem...)
}

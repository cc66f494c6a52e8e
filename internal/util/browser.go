package util

import (
	"fmt"
	"os/exec"
	"runtime"
)

// browserCommand 各平台打开 URL 的命令
func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "windows":
		// rundll32 在 Windows 7 上比 cmd /c start 更稳定
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		return "open", []string{url}
	default:
		return "xdg-open", []string{url}
	}
}

// fallbackCommands 主命令失败时依次尝试
func fallbackCommands(goos, url string) [][]string {
	switch goos {
	case "windows":
		return [][]string{{"explorer", url}}
	case "linux":
		var cmds [][]string
		for _, b := range []string{"google-chrome", "firefox", "chromium-browser", "sensible-browser"} {
			cmds = append(cmds, []string{b, url})
		}
		return cmds
	}
	return nil
}

// OpenBrowser 打开默认浏览器
func OpenBrowser(url string) error {
	name, args := browserCommand(runtime.GOOS, url)
	return exec.Command(name, args...).Start()
}

// OpenBrowserWithFallback 带降级方案的浏览器打开
func OpenBrowserWithFallback(url string) error {
	err := OpenBrowser(url)
	if err == nil {
		return nil
	}
	for _, c := range fallbackCommands(runtime.GOOS, url) {
		if e := exec.Command(c[0], c[1:]...).Start(); e == nil {
			return nil
		}
	}
	return fmt.Errorf("open browser: %w", err)
}

// DashboardURL 本机访问地址
func DashboardURL(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}

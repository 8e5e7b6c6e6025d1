package utils

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/wentf9/showcmd/pkg/errs"
	"github.com/wentf9/showcmd/pkg/models"
)

// ReadDeviceFile 读取设备列表文件，每行一个地址。
// 忽略空行和以 # 开头的注释行，去掉行首尾空白
func ReadDeviceFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errs.Configf("cannot read device list file: %w", err)
	}
	defer file.Close()

	devices, err := ParseDeviceList(file)
	if err != nil {
		return nil, errs.Configf("cannot read device list file %s: %w", path, err)
	}
	return devices, nil
}

// ParseDeviceList 从 r 中解析设备地址
func ParseDeviceList(r io.Reader) ([]string, error) {
	var devices []string
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, "#") {
			devices = append(devices, line)
		}
		if err == io.EOF {
			break
		}
	}
	return devices, nil
}

// BuildTargets 为每个地址生成 Target，平台和端口对所有设备相同
func BuildTargets(addresses []string, platform models.Platform, port int, note string) []models.Target {
	targets := make([]models.Target, 0, len(addresses))
	for _, a := range addresses {
		targets = append(targets, models.Target{Address: a, Platform: platform, Port: port, Note: note})
	}
	return targets
}

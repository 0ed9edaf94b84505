// internal/pkg/utils/net.go
package utils

import "net"

// GetOutboundIP 获取本机对外通信的 IP，用于向注册中心上报实例地址。
// 不会真的发包，只是借 UDP 连接拿到本地地址。
func GetOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}

package ssh

import (
	"golang.org/x/crypto/ssh"
)

// authMethods 同时提供 password 与 keyboard-interactive，
// 很多网络设备只接受后者，所有问题统一用登录密码回答
func authMethods(secret string) []ssh.AuthMethod {
	return []ssh.AuthMethod{
		ssh.Password(secret),
		ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
			answers := make([]string, len(questions))
			for i := range questions {
				answers[i] = secret
			}
			return answers, nil
		}),
	}
}

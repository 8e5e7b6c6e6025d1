package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wentf9/showcmd/global"
	"github.com/wentf9/showcmd/pkg/credential"
	"github.com/wentf9/showcmd/pkg/crypto"
	"github.com/wentf9/showcmd/pkg/errs"
)

func NewCmdEncrypt(o *CollectOptions) *cobra.Command {
	var keyFile string
	cmd := &cobra.Command{
		Use:   "encrypt [value]",
		Short: "加密配置文件中使用的密码",
		Long: `用本地密钥加密一个值，输出 ENC: 开头的密文，可直接写入 showcmd.yaml
(storage.minio.access_key / secret_key, classifier.rules[].password / enable_secret)。
密钥文件不存在时自动生成。未提供参数时从终端读取(不回显)。
用法示例:
showcmd encrypt
showcmd encrypt 'Readonly1' --key ~/.showcmd/key`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if keyFile == "" {
				s, err := loadSettings(o.ConfigFile, debugEnabled(cmd))
				if err != nil {
					return err
				}
				keyFile = s.Secrets.KeyFile
			}

			var plain string
			if len(args) == 1 {
				plain = args[0]
			} else {
				p := o.Prompter
				if p == nil {
					p = credential.NewTerminalPrompter(global.IsTerminal)
				}
				v, err := p.ReadSecret("Value: ")
				if err != nil {
					return errs.Configf("failed to read value: %w", err)
				}
				plain = v
			}
			if plain == "" {
				return errs.Configf("nothing to encrypt")
			}

			key, err := crypto.LoadOrGenerateKey(keyFile)
			if err != nil {
				return errs.Configf("%w", err)
			}
			c, err := crypto.NewCrypter(key)
			if err != nil {
				return errs.Configf("%w", err)
			}
			enc, err := c.Encrypt(plain)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), enc)
			return nil
		},
	}
	cmd.Flags().StringVar(&keyFile, "key", "", "密钥文件 (默认取配置 secrets.key_file)")
	return cmd
}

package crypto

import "fmt"

// RevealFields 就地解密 fields 中以 ENC: 开头的值。
// 只有存在加密值时才读取 keyFile，明文值保持不变
func RevealFields(keyFile string, fields ...*string) error {
	var c *Crypter
	for _, f := range fields {
		if f == nil || !IsEncrypted(*f) {
			continue
		}
		if c == nil {
			key, err := LoadKey(keyFile)
			if err != nil {
				return fmt.Errorf("encrypted values present: %w", err)
			}
			if c, err = NewCrypter(key); err != nil {
				return fmt.Errorf("invalid secrets key: %w", err)
			}
		}
		plain, err := c.Decrypt(*f)
		if err != nil {
			return err
		}
		*f = plain
	}
	return nil
}

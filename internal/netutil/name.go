package netutil

// MaxNameLen 为抽象命名空间名字的最大字节数，超出部分被截断。
const MaxNameLen = 64

// TruncateName 截断到 MaxNameLen 字节
func TruncateName(name string) string {
	if len(name) > MaxNameLen {
		return name[:MaxNameLen]
	}
	return name
}

// AbstractAddress 返回 net 包可识别的抽象命名空间地址（前缀 '@'）
func AbstractAddress(name string) string {
	return "@" + TruncateName(name)
}

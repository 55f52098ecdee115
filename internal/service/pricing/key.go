package pricing

import "strings"

const (
	// KeyDefault 兜底键
	KeyDefault = "Default"
	// KeyFasteners 紧固件品类 / 分组键
	KeyFasteners = "Fasteners"

	keySeparator = ":"
)

// 可识别的紧固件子类型
var fastenerSubtypes = []string{"Pancake", "Type S", "Type A", "Wood Grip", "Metal Grip", "Stitch", "Rivet"}

// CategoryKey 品类键：普通品类 / 规格变体（"FC36:29"）/ 紧固件子类型（"Fasteners:Type S"）
type CategoryKey struct {
	Category string `json:"category"`
	Gauge    string `json:"gauge,omitempty"`
	Subtype  string `json:"subtype,omitempty"`
}

// FastenerSubtype 忽略大小写识别紧固件子类型，返回规范写法
func FastenerSubtype(name string) (string, bool) {
	n := strings.TrimSpace(name)
	for _, sub := range fastenerSubtypes {
		if strings.EqualFold(n, sub) {
			return sub, true
		}
	}
	return "", false
}

// ParseCategoryKey 解析字符串形式的品类键
func ParseCategoryKey(raw string) CategoryKey {
	s := strings.TrimSpace(raw)
	base, variant, found := strings.Cut(s, keySeparator)
	base = strings.TrimSpace(base)
	variant = strings.TrimSpace(variant)

	if strings.EqualFold(base, KeyFasteners) {
		k := CategoryKey{Category: KeyFasteners}
		if found && variant != "" {
			if sub, ok := FastenerSubtype(variant); ok {
				k.Subtype = sub
			} else {
				k.Subtype = variant
			}
		}
		return k
	}

	k := CategoryKey{Category: base}
	if sub, ok := FastenerSubtype(base); ok {
		k.Category = sub
		k.Subtype = sub
	}
	if found && variant != "" {
		k.Gauge = variant
	}
	return k
}

// String 规范字符串形式
func (k CategoryKey) String() string {
	if k.Category == KeyFasteners && k.Subtype != "" {
		return KeyFasteners + keySeparator + k.Subtype
	}
	if k.Gauge != "" {
		return k.Category + keySeparator + k.Gauge
	}
	return k.Category
}

// Base 去掉规格/子类型后的基础品类键
func (k CategoryKey) Base() CategoryKey {
	return CategoryKey{Category: k.Category}
}

// IsFastener 紧固件品类或其子类型
func (k CategoryKey) IsFastener() bool {
	return k.Subtype != "" || strings.EqualFold(k.Category, KeyFasteners)
}

// ListCandidates 加价系数的查找顺序（最具体的在前）：
// 规格变体 -> Fasteners:<子类型> -> 品类名 -> Fasteners -> Default
func (k CategoryKey) ListCandidates() []string {
	c := candidateList{}
	if k.Gauge != "" {
		c.add(k.Category + keySeparator + k.Gauge)
	}
	if k.Subtype != "" {
		c.add(KeyFasteners + keySeparator + k.Subtype)
	}
	c.add(k.Category)
	if k.IsFastener() {
		c.add(KeyFasteners)
	}
	c.add(KeyDefault)
	return c.keys
}

// DiscountCandidates 折扣系数的查找顺序：
// 完整键 -> Fasteners:<子类型> -> 基础品类 -> Fasteners -> 等级 Default
func (k CategoryKey) DiscountCandidates() []string {
	c := candidateList{}
	c.add(k.String())
	if k.Subtype != "" {
		c.add(KeyFasteners + keySeparator + k.Subtype)
	}
	c.add(k.Category)
	if k.IsFastener() {
		c.add(KeyFasteners)
	}
	c.add(KeyDefault)
	return c.keys
}

type candidateList struct {
	keys []string
}

func (c *candidateList) add(key string) {
	if key == "" {
		return
	}
	for _, k := range c.keys {
		if k == key {
			return
		}
	}
	c.keys = append(c.keys, key)
}

package processor

// ComponentOpt 组件选项类型，仅改变 Components 结构体内的字段
type ComponentOpt func(*Components)

// SettingOpt 设置选项类型，仅改变 Settings 结构体内的字段
type SettingOpt func(*Settings)

// ----- 组件选项 -----

// WithExtractor 设置文档文本提取器
func WithExtractor(extractor TextExtractor) ComponentOpt {
	return func(c *Components) {
		c.Extractor = extractor
	}
}

// WithCriteriaExtractor 设置招聘条件提取器
func WithCriteriaExtractor(extractor CriteriaExtractor) ComponentOpt {
	return func(c *Components) {
		c.Criteria = extractor
	}
}

// WithResultWriter 设置结果存储
func WithResultWriter(writer ResultWriter) ComponentOpt {
	return func(c *Components) {
		c.Writer = writer
	}
}

// WithObserver 追加一个批次观察者，nil 会被忽略
func WithObserver(observer BatchObserver) ComponentOpt {
	return func(c *Components) {
		if observer != nil {
			c.Observers = append(c.Observers, observer)
		}
	}
}

// ----- 设置选项 -----

// WithConcurrency 设置单个批次内的并发数，小于 1 时按 1 处理
func WithConcurrency(n int) SettingOpt {
	return func(s *Settings) {
		if n < 1 {
			n = 1
		}
		s.Concurrency = n
	}
}

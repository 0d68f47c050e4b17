package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ Registry          = (*ActionRegistry)(nil)
	_ OperationObserver = (*Service)(nil)
	_ MetricsRecorder   = NopMetricsRecorder{}
	_ ConfigProvider    = (*CfgxConfigProvider)(nil)
	_ OptionsResolver   = GoOptionsResolver{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)

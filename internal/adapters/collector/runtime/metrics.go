package runtime

import (
	"runtime"

	"github.com/vshulcz/Cubeship/internal/domain"
)

// Gauge names reported by the collector.
const (
	MAlloc         = "Alloc"
	MBuckHashSys   = "BuckHashSys"
	MFrees         = "Frees"
	MGCCPUFraction = "GCCPUFraction"
	MGCSys         = "GCSys"
	MHeapAlloc     = "HeapAlloc"
	MHeapIdle      = "HeapIdle"
	MHeapInuse     = "HeapInuse"
	MHeapObjects   = "HeapObjects"
	MHeapReleased  = "HeapReleased"
	MHeapSys       = "HeapSys"
	MLastGC        = "LastGC"
	MLookups       = "Lookups"
	MMCacheInuse   = "MCacheInuse"
	MMCacheSys     = "MCacheSys"
	MMSpanInuse    = "MSpanInuse"
	MMSpanSys      = "MSpanSys"
	MMallocs       = "Mallocs"
	MNextGC        = "NextGC"
	MNumForcedGC   = "NumForcedGC"
	MNumGC         = "NumGC"
	MOtherSys      = "OtherSys"
	MPauseTotalNs  = "PauseTotalNs"
	MStackInuse    = "StackInuse"
	MStackSys      = "StackSys"
	MSys           = "Sys"
	MTotalAlloc    = "TotalAlloc"
	MGoroutines    = "Goroutines"

	TotalMemory    = "TotalMemory"
	FreeMemory     = "FreeMemory"
	CPUutilization = "CPUutilization"
)

const (
	unitBytes   = "bytes"
	unitCount   = "count"
	unitNanos   = "ns"
	unitRatio   = "ratio"
	unitPercent = "%"
)

type memGauge struct {
	read func(ms *runtime.MemStats) float64
	role domain.Role
}

func bytesOf(name string, read func(ms *runtime.MemStats) uint64) memGauge {
	return memGauge{role: domain.Role{Name: name, Unit: unitBytes}, read: func(ms *runtime.MemStats) float64 { return float64(read(ms)) }}
}

func countOf(name string, read func(ms *runtime.MemStats) uint64) memGauge {
	return memGauge{role: domain.Role{Name: name, Unit: unitCount}, read: func(ms *runtime.MemStats) float64 { return float64(read(ms)) }}
}

// memGauges is also the reporting order of the runtime part of a snapshot.
var memGauges = []memGauge{
	bytesOf(MAlloc, func(ms *runtime.MemStats) uint64 { return ms.Alloc }),
	bytesOf(MBuckHashSys, func(ms *runtime.MemStats) uint64 { return ms.BuckHashSys }),
	countOf(MFrees, func(ms *runtime.MemStats) uint64 { return ms.Frees }),
	{role: domain.Role{Name: MGCCPUFraction, Unit: unitRatio}, read: func(ms *runtime.MemStats) float64 { return ms.GCCPUFraction }},
	bytesOf(MGCSys, func(ms *runtime.MemStats) uint64 { return ms.GCSys }),
	bytesOf(MHeapAlloc, func(ms *runtime.MemStats) uint64 { return ms.HeapAlloc }),
	bytesOf(MHeapIdle, func(ms *runtime.MemStats) uint64 { return ms.HeapIdle }),
	bytesOf(MHeapInuse, func(ms *runtime.MemStats) uint64 { return ms.HeapInuse }),
	countOf(MHeapObjects, func(ms *runtime.MemStats) uint64 { return ms.HeapObjects }),
	bytesOf(MHeapReleased, func(ms *runtime.MemStats) uint64 { return ms.HeapReleased }),
	bytesOf(MHeapSys, func(ms *runtime.MemStats) uint64 { return ms.HeapSys }),
	{role: domain.Role{Name: MLastGC, Unit: unitNanos}, read: func(ms *runtime.MemStats) float64 { return float64(ms.LastGC) }},
	countOf(MLookups, func(ms *runtime.MemStats) uint64 { return ms.Lookups }),
	bytesOf(MMCacheInuse, func(ms *runtime.MemStats) uint64 { return ms.MCacheInuse }),
	bytesOf(MMCacheSys, func(ms *runtime.MemStats) uint64 { return ms.MCacheSys }),
	bytesOf(MMSpanInuse, func(ms *runtime.MemStats) uint64 { return ms.MSpanInuse }),
	bytesOf(MMSpanSys, func(ms *runtime.MemStats) uint64 { return ms.MSpanSys }),
	countOf(MMallocs, func(ms *runtime.MemStats) uint64 { return ms.Mallocs }),
	bytesOf(MNextGC, func(ms *runtime.MemStats) uint64 { return ms.NextGC }),
	{role: domain.Role{Name: MNumForcedGC, Unit: unitCount}, read: func(ms *runtime.MemStats) float64 { return float64(ms.NumForcedGC) }},
	{role: domain.Role{Name: MNumGC, Unit: unitCount}, read: func(ms *runtime.MemStats) float64 { return float64(ms.NumGC) }},
	bytesOf(MOtherSys, func(ms *runtime.MemStats) uint64 { return ms.OtherSys }),
	{role: domain.Role{Name: MPauseTotalNs, Unit: unitNanos}, read: func(ms *runtime.MemStats) float64 { return float64(ms.PauseTotalNs) }},
	bytesOf(MStackInuse, func(ms *runtime.MemStats) uint64 { return ms.StackInuse }),
	bytesOf(MStackSys, func(ms *runtime.MemStats) uint64 { return ms.StackSys }),
	bytesOf(MSys, func(ms *runtime.MemStats) uint64 { return ms.Sys }),
	bytesOf(MTotalAlloc, func(ms *runtime.MemStats) uint64 { return ms.TotalAlloc }),
}

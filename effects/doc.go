// Package effects is the small effect-handler runtime the collatz tool runs on.
//
// Side effects such as logging, configuration lookup and goroutine supervision
// are delegated to handlers registered on a context.Context. Business code
// performs an effect against the context and stays free of the concrete
// logger, config source or scheduler.
//
// Handlers are registered with `WithXxxEffectHandler(ctx, ...)`, which returns
// the extended context plus a teardown that closes the handler and hands back
// the parent context:
//
//	ctx, endOfLog := log.WithZapEffectHandler(ctx, 16, logger)
//	defer endOfLog()
//
//	log.LogEff(ctx, log.LogInfo, "memo loaded", map[string]interface{}{"entries": n})
//
// Two handler shapes exist: resumable handlers answer each payload on a result
// channel (binding), fire-and-forget handlers only consume (log, concurrency).
// Resumable handlers may be partitioned; payloads sharing a PartitionKey are
// handled in order by one worker.
package effects

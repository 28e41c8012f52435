// Command tradeyard is the management CLI for the Tradeyard API.
//
// Install from the repository root:
//
//	go install ./cmd/tradeyard
//
// Then, with the environment configured (see config/env.go):
//
//	tradeyard serve            # start the HTTP (+ optional gRPC) server
//	tradeyard migrate          # run pending migrations
//	tradeyard migrate:rollback # undo the last migration batch
//	tradeyard migrate:status   # show applied / pending migrations
//	tradeyard seed             # load demo data
//	tradeyard route:list       # print the route table
//	tradeyard queue:work       # run a detached queue worker (needs QUEUE_DRIVER=redis)
//	tradeyard schedule:run     # run the task scheduler standalone
//
// `serve` already runs workers and the scheduler in-process; the detached
// queue:work and schedule:run commands are for deployments that scale those
// separately.
package main

// Package actions ships the reference action set registered against the
// messaging action registry: call, payment, and refund lifecycle operations,
// outbound message sending, and read-side status queries. Each handler is a
// thin parameter adapter over the status engine and the messaging gateway;
// domain rules stay in the core packages.
package actions

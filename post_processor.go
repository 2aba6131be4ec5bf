package dbfactory

import (
	"context"
)

// RowPostProcessor is an interface that can be passed as an option to Executor.Rows and Executor.FirstRow
//
// post processors run, in the order passed, against each Row once all rows have been read and the connection
// released - so sqli can safely be used to run further statements (e.g. to enrich the row)
type RowPostProcessor interface {
	PostProcess(ctx context.Context, sqli SqlInterface, row Row) error
}

// RowPostProcessorFunc is a func that implements RowPostProcessor
type RowPostProcessorFunc func(ctx context.Context, sqli SqlInterface, row Row) error

func (f RowPostProcessorFunc) PostProcess(ctx context.Context, sqli SqlInterface, row Row) error {
	return f(ctx, sqli, row)
}

func postProcessRows(ctx context.Context, sqli SqlInterface, rows []Row, postProcessors []RowPostProcessor) error {
	if len(postProcessors) == 0 {
		return nil
	}
	for _, row := range rows {
		for _, pp := range postProcessors {
			if err := pp.PostProcess(ctx, sqli, row); err != nil {
				return err
			}
		}
	}
	return nil
}

/*
   semwatch - System V semaphore usage sampler
   Copyright (C) 2025 Rapid7 Inc.

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU Affero General Public License as published
   by the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU Affero General Public License for more details.

   You should have received a copy of the GNU Affero General Public License
   along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
// The sample log is a plain Comma Separated Value (CSV) file.

// Each sample is one row appended to the end of the file, so the
// file can be followed or rotated by external tools between samples:
// the file is opened, appended to and closed once per sample and no
// handle is held while the sampler sleeps.

// The header is written when the file is created (or found empty),
// in the same write as the first row. A row is fully formatted
// before the file is opened so a failed sample never leaves a
// partial row behind.

// Row format:
//
//   ts,db2inst_semcnt,db2fmp_semcnt,sys_semcnt,max_sem
//   1592236800.123456,6,3,2,1024000000
//
// ts is seconds since the epoch with microsecond precision. Values
// are never quoted.

package csv
